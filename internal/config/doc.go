// Package config reads the server settings from the environment,
// optionally seeded from a dotenv file.
//
// Only the Daraja consumer credentials are needed at startup. Merchant,
// Unstructured, S3 and MongoDB settings are read when a tool needs them.
package config
