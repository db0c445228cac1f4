package handler

// APIPrefix is the canonical base path for the public HTTP API.
// Keep a single source of truth to avoid path drift across handlers and tests.
const APIPrefix = "/api"

// RecordsPath is the listing endpoint under APIPrefix; RecordsAliasPath serves
// the same listing at the root for clients that address it as /records.
const (
	RecordsPath      = "/cves"
	RecordsAliasPath = "/records"
)

// DocsPath serves the Swagger UI page; it gets a looser CSP than the API.
const DocsPath = "/docs"
