package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// DiseaseGraph keeps a co-occurrence graph of diseases in neo4j. Each
// document's classification merges one Disease node and an undirected
// CO_OCCURS_WITH edge per co-mentioned disease, with a mention counter on
// the edge.
type DiseaseGraph struct {
	driver neo4j.DriverWithContext
}

func New(ctx context.Context, uri, user, password string) (*DiseaseGraph, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &DiseaseGraph{driver: driver}, nil
}

func (g *DiseaseGraph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

func (g *DiseaseGraph) UpsertDisease(ctx context.Context, name, diseaseType string, related []string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
MERGE (d:Disease {name: $name})
SET d.type = $type
`, map[string]any{"name": name, "type": diseaseType}); err != nil {
			return nil, err
		}

		for _, other := range related {
			other = strings.TrimSpace(other)
			if other == "" || strings.EqualFold(other, name) {
				continue
			}
			if _, err := tx.Run(ctx, `
MERGE (a:Disease {name: $name})
MERGE (b:Disease {name: $other})
MERGE (a)-[r:CO_OCCURS_WITH]-(b)
ON CREATE SET r.mentions = 1
ON MATCH SET r.mentions = r.mentions + 1
`, map[string]any{"name": name, "other": other}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("upsert disease %s: %w", name, err)
	}
	return nil
}

func (g *DiseaseGraph) RelatedDiseases(ctx context.Context, name string, limit int) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (d:Disease {name: $name})-[r:CO_OCCURS_WITH]-(other:Disease)
RETURN other.name AS name
ORDER BY r.mentions DESC, other.name ASC
LIMIT $limit
`, map[string]any{"name": name, "limit": limit})
		if err != nil {
			return nil, err
		}

		var names []string
		for res.Next(ctx) {
			if v, ok := res.Record().Get("name"); ok {
				if s, ok := v.(string); ok {
					names = append(names, s)
				}
			}
		}
		return names, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("related diseases for %s: %w", name, err)
	}
	names, _ := result.([]string)
	return names, nil
}
