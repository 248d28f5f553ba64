package storage

// copyGraphDefinition creates a deep copy of a GraphDefinition to prevent
// external modification of stored state.
func copyGraphDefinition(d *GraphDefinition) *GraphDefinition {
	if d == nil {
		return nil
	}

	defCopy := *d

	if len(d.Nodes) > 0 {
		defCopy.Nodes = make([]NodeDefinition, len(d.Nodes))
		copy(defCopy.Nodes, d.Nodes)
	}
	if len(d.Edges) > 0 {
		defCopy.Edges = make([]EdgeDefinition, len(d.Edges))
		copy(defCopy.Edges, d.Edges)
	}

	return &defCopy
}

// copyContextDefinition creates a deep copy of a ContextDefinition to
// prevent external modification of stored state.
func copyContextDefinition(d *ContextDefinition) *ContextDefinition {
	if d == nil {
		return nil
	}

	defCopy := *d

	if len(d.Contextoid) > 0 {
		defCopy.Contextoid = make([]ContextoidDefinition, len(d.Contextoid))
		copy(defCopy.Contextoid, d.Contextoid)
	}
	if len(d.Edges) > 0 {
		defCopy.Edges = make([]ContextEdgeDefinition, len(d.Edges))
		copy(defCopy.Edges, d.Edges)
	}

	return &defCopy
}
