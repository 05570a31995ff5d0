// Package mpesa_tools provides MCP tools for M-Pesa payments through the
// Safaricom Daraja API.
//
// # Available Tools
//
//   - stk_push: Send an STK push prompt to a customer's phone
//   - generate_qr_code: Generate a dynamic payment QR code
//
// # Authentication
//
// Tools never fetch tokens themselves. Each call reads the current bearer
// token from the server context; the credential manager renews it in the
// background.
package mpesa_tools
