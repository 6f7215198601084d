// Package neo4j projects extracted entities into a graph so cases can
// be explored by shared people, organizations and filing numbers.
// Projection is best-effort and feature-flagged; the pipeline never
// waits on it for correctness.
package neo4j

import (
	"context"
	"fmt"

	neo "github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kirillkom/case-analysis-backend/internal/core/domain"
)

type Graph struct {
	driver neo.DriverWithContext
}

func New(ctx context.Context, uri, user, password string) (*Graph, error) {
	driver, err := neo.NewDriverWithContext(uri, neo.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Graph{driver: driver}, nil
}

func (g *Graph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

const upsertDocumentCypher = `
MERGE (c:Case {id: $case_id})
MERGE (d:Document {id: $document_id})
SET d.filename = $filename
MERGE (d)-[:BELONGS_TO]->(c)
`

const mentionPeopleCypher = `
MATCH (d:Document {id: $document_id})
UNWIND $people AS person
MERGE (p:Person {name: person.name})
MERGE (d)-[m:MENTIONS]->(p)
SET m.role = person.role, m.confidence = person.confidence
`

const mentionNamedCypher = `
MATCH (d:Document {id: $document_id})
UNWIND $names AS name
MERGE (n:%s {name: name})
MERGE (d)-[:MENTIONS]->(n)
`

const referencesCaseNumberCypher = `
MATCH (d:Document {id: $document_id})
UNWIND $numbers AS number
MERGE (n:CaseNumber {value: number})
MERGE (d)-[:REFERENCES]->(n)
`

// ProjectEntities MERGEs the document, its case and every extracted
// entity, so repeated runs stay idempotent.
func (g *Graph) ProjectEntities(ctx context.Context, doc *domain.Document, entities *domain.EntitiesResult) error {
	session := g.driver.NewSession(ctx, neo.SessionConfig{AccessMode: neo.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, upsertDocumentCypher, map[string]any{
			"document_id": doc.ID,
			"case_id":     doc.CaseID,
			"filename":    doc.Filename,
		}); err != nil {
			return nil, err
		}

		if people := personParams(entities.People); len(people) > 0 {
			if _, err := tx.Run(ctx, mentionPeopleCypher, map[string]any{
				"document_id": doc.ID,
				"people":      people,
			}); err != nil {
				return nil, err
			}
		}

		for label, names := range map[string][]string{
			"Organization": entities.Organizations,
			"Location":     entities.Locations,
		} {
			cleaned := cleanNames(names)
			if len(cleaned) == 0 {
				continue
			}
			if _, err := tx.Run(ctx, fmt.Sprintf(mentionNamedCypher, label), map[string]any{
				"document_id": doc.ID,
				"names":       cleaned,
			}); err != nil {
				return nil, err
			}
		}

		if numbers := cleanNames(entities.CaseNumbers); len(numbers) > 0 {
			if _, err := tx.Run(ctx, referencesCaseNumberCypher, map[string]any{
				"document_id": doc.ID,
				"numbers":     numbers,
			}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("project entities: %w", err)
	}
	return nil
}

func personParams(people []domain.Person) []map[string]any {
	out := make([]map[string]any, 0, len(people))
	for _, p := range people {
		if p.Name == "" {
			continue
		}
		out = append(out, map[string]any{
			"name":       p.Name,
			"role":       p.Role,
			"confidence": p.Confidence,
		})
	}
	return out
}

func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		out = append(out, name)
	}
	return out
}
