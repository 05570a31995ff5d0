// Package unstructured wraps the Unstructured platform API used to turn
// documents in an S3 bucket into analyzed records in MongoDB.
//
// Every workflow created here is a custom workflow with two nodes: a hi-res
// partitioner followed by an OpenAI named-entity enrichment step.
package unstructured
