package db

// SQL schema for the documents database. A document is an ordered stack of
// pages; page order lives in the position column, contiguous from 0 per
// document. All structural page edits go through transactions that keep
// positions contiguous.

// DocumentsDBSchema contains all the SQL statements for the encrypted
// documents database.
const DocumentsDBSchema = `
-- Documents table: one row per multi-page document
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_updated_at ON documents(updated_at DESC);

-- Pages table: ordered page content with 1MB content limit
CREATE TABLE IF NOT EXISTS pages (
    id TEXT PRIMARY KEY,
    document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    content TEXT NOT NULL CHECK(length(content) <= 1048576),
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pages_document_position ON pages(document_id, position);
`
