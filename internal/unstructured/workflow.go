package unstructured

// nerPrompt asks the enrichment node for structured named entities
const nerPrompt = "Please identify and classify named entities in the following text. " +
	"Focus on identifying organizations, people, locations, dates, and other relevant entities. " +
	"Provide the entities and their corresponding types as a structured JSON response.\n\n[START OF TEXT]"

// PartitionerNode returns the hi-res partitioning step
func PartitionerNode() WorkflowNode {
	return WorkflowNode{
		Name:    "Partitioner",
		Type:    NodeTypePartition,
		Subtype: "unstructured_api",
		Settings: map[string]any{
			"strategy":                  "hi_res",
			"include_page_breaks":       true,
			"pdf_infer_table_structure": true,
			"xml_keep_tags":             true,
			"encoding":                  "utf-8",
			"ocr_languages":             []string{"eng", "fra"},
			"extract_image_block_types": []string{"image", "table"},
			"infer_table_structure":     true,
		},
	}
}

// NEREnrichmentNode returns the named-entity enrichment step
func NEREnrichmentNode() WorkflowNode {
	return WorkflowNode{
		Name:    "NER Enrichment",
		Type:    NodeTypePrompter,
		Subtype: "openai_ner",
		Settings: map[string]any{
			"prompt_interface_overrides": map[string]any{
				"prompt": map[string]any{
					"user": nerPrompt,
				},
			},
		},
	}
}

// DefaultWorkflowNodes is the partition-then-enrich pipeline used for every
// custom workflow
func DefaultWorkflowNodes() []WorkflowNode {
	return []WorkflowNode{PartitionerNode(), NEREnrichmentNode()}
}
