// Package domain holds the shared types and contracts of the resume pipeline.
package domain

import "github.com/google/uuid"

// resumeNamespace seeds content-derived document IDs. Changing it
// invalidates every previously indexed document ID.
var resumeNamespace = uuid.MustParse("8e2d6f1c-74ab-4c37-9d15-3b0cfe6a9b42")

// Resume is one indexed document: raw bytes live in the blob store,
// extracted text and filename travel as index payload.
type Resume struct {
	ID       string
	Filename string
	Text     string
	Vector   []float32
}

// Hit is one ranked search result.
type Hit struct {
	ID       string
	Filename string
	Text     string
	Score    float64
}

// ResumeID derives a stable document ID from the raw file bytes.
// Identical content always maps to the same UUID regardless of
// filename, process, or run; distinct content cannot collide short of
// a SHA-1 collision. The result is a valid vector index point ID.
func ResumeID(content []byte) string {
	return uuid.NewSHA1(resumeNamespace, content).String()
}
