// Package services implements the core business logic behind the
// driving ports: the ingestion pipeline and the question answering
// flow. Services depend only on the driven ports, never on concrete
// adapters, so every dependency can be swapped in tests.
package services
