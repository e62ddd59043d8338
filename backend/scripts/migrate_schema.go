package main

import (
	"context"
	"fmt"
	"os"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"recall/backend/pkg/config"
	"recall/backend/pkg/logger"
)

// Creates the uniqueness constraints the merge-by-key upserts rely on.
// Safe to run repeatedly: IF NOT EXISTS makes every statement idempotent.
func main() {
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting Neo4j schema migration...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(ctx)

	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to connect to Neo4j", zap.Error(err))
	}

	statements := []string{
		"CREATE CONSTRAINT email_id IF NOT EXISTS FOR (n:Email) REQUIRE n.id IS UNIQUE",
		"CREATE CONSTRAINT document_id IF NOT EXISTS FOR (n:Document) REQUIRE n.id IS UNIQUE",
		"CREATE CONSTRAINT meeting_id IF NOT EXISTS FOR (n:Meeting) REQUIRE n.id IS UNIQUE",
		"CREATE CONSTRAINT person_email IF NOT EXISTS FOR (p:Person) REQUIRE p.email IS UNIQUE",
		"CREATE CONSTRAINT topic_name IF NOT EXISTS FOR (t:Topic) REQUIRE t.name IS UNIQUE",
		"CREATE INDEX email_user IF NOT EXISTS FOR (n:Email) ON (n.user_id)",
		"CREATE INDEX document_user IF NOT EXISTS FOR (n:Document) ON (n.user_id)",
		"CREATE INDEX meeting_user IF NOT EXISTS FOR (n:Meeting) ON (n.user_id)",
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for _, stmt := range statements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			log.Error("Migration statement failed",
				zap.String("statement", stmt),
				zap.Error(err),
			)
			os.Exit(1)
		}
		log.Info("Applied", zap.String("statement", stmt))
	}

	log.Info("Schema migration complete")
}
