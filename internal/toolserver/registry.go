package toolserver

// buildToolRegistry wires every tool name to its handler. The spec's
// table lists 20 named tools for a documented 22-tool surface;
// update_memory/delete_memory round it out since Router already
// exposes those capabilities and every Capability operation needs a
// tool-surface binding.
func buildToolRegistry() map[string]toolHandler {
	return map[string]toolHandler{
		"store_memory":                 handleStoreMemory,
		"update_memory":                handleUpdateMemory,
		"delete_memory":                handleDeleteMemory,
		"search_memory":                handleSearchMemory,
		"get_memory_stats":             handleGetMemoryStats,
		"advanced_search":               handleAdvancedSearch,
		"semantic_search":              handleSemanticSearch,
		"temporal_search":              handleTemporalSearch,
		"build_knowledge_graph":        handleBuildKnowledgeGraph,
		"get_memory_relationships":     handleGetMemoryRelationships,
		"detect_conflicts":             handleDetectConflicts,
		"get_memory_versions":          handleGetMemoryVersions,
		"summarize_cluster":            handleSummarizeCluster,
		"get_relationship_suggestions": handleGetRelationshipSuggestions,
		"validate_relationship":        handleValidateRelationship,
		"get_validation_stats":         handleGetValidationStats,
		"predict_memory_decay":         handlePredictMemoryDecay,
		"get_urgent_memories":          handleGetUrgentMemories,
		"get_promotion_candidates":     handleGetPromotionCandidates,
		"get_archival_candidates":      handleGetArchivalCandidates,
		"get_decay_insights":           handleGetDecayInsights,
		"get_monitoring_stats":         handleGetMonitoringStats,
	}
}

func (s *Server) toolDescriptors() []Tool {
	empty := map[string]any{"type": "object", "properties": map[string]any{}}
	return []Tool{
		{Name: "store_memory", Description: "Store a new memory item, classified into the appropriate tier.", InputSchema: objectSchema("content")},
		{Name: "update_memory", Description: "Update an existing memory item's content or metadata.", InputSchema: objectSchema("tier", "memoryId")},
		{Name: "delete_memory", Description: "Delete a memory item from its owning tier.", InputSchema: objectSchema("tier", "memoryId")},
		{Name: "search_memory", Description: "Search across tiers and return merged, re-ranked results.", InputSchema: objectSchema("query")},
		{Name: "get_memory_stats", Description: "Per-tier counts, sizes, and category breakdowns.", InputSchema: empty},
		{Name: "advanced_search", Description: "Hybrid lexical/semantic/temporal/relationship search with a strategy plan.", InputSchema: objectSchema("query")},
		{Name: "semantic_search", Description: "Vector-backed semantic search with lexical fallback.", InputSchema: objectSchema("query")},
		{Name: "temporal_search", Description: "Search within an explicit or relative time range.", InputSchema: objectSchema("query")},
		{Name: "build_knowledge_graph", Description: "Return the full relationship graph as nodes and edges.", InputSchema: empty},
		{Name: "get_memory_relationships", Description: "List every relationship touching a memory id.", InputSchema: objectSchema("memoryId")},
		{Name: "detect_conflicts", Description: "Flag semantically similar but contradicting memory pairs.", InputSchema: empty},
		{Name: "get_memory_versions", Description: "Return a memory's append-only version history.", InputSchema: objectSchema("memoryId")},
		{Name: "summarize_cluster", Description: "Summarize a set of memory ids deterministically.", InputSchema: objectSchema("memoryIds")},
		{Name: "get_relationship_suggestions", Description: "List below-threshold relationship suggestions awaiting validation.", InputSchema: empty},
		{Name: "validate_relationship", Description: "Confirm, reject, or modify a relationship suggestion.", InputSchema: objectSchema("suggestionId", "action")},
		{Name: "get_validation_stats", Description: "Validation outcome counts and algorithm insight.", InputSchema: empty},
		{Name: "predict_memory_decay", Description: "Forecast importance trajectories and recommendation buckets.", InputSchema: empty},
		{Name: "get_urgent_memories", Description: "Items whose predicted importance falls into the urgent bucket.", InputSchema: empty},
		{Name: "get_promotion_candidates", Description: "Items whose predicted importance falls into the promote bucket.", InputSchema: empty},
		{Name: "get_archival_candidates", Description: "Items whose predicted importance falls into the archive bucket.", InputSchema: empty},
		{Name: "get_decay_insights", Description: "Model-level decay metrics across all evaluated items.", InputSchema: empty},
		{Name: "get_monitoring_stats", Description: "A telemetry snapshot: per-tier stats, search analytics, validation stats.", InputSchema: empty},
	}
}

func objectSchema(required ...string) map[string]any {
	props := map[string]any{}
	for _, r := range required {
		props[r] = map[string]any{}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}
