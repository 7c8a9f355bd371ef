package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bovicare/bovicare/internal/config"
	"github.com/bovicare/bovicare/internal/core/ports"
	"github.com/bovicare/bovicare/internal/core/usecase"
	"github.com/bovicare/bovicare/internal/infrastructure/chunking"
	"github.com/bovicare/bovicare/internal/infrastructure/extractor"
	"github.com/bovicare/bovicare/internal/infrastructure/graph/neo4j"
	"github.com/bovicare/bovicare/internal/infrastructure/llm/ollama"
	"github.com/bovicare/bovicare/internal/infrastructure/queue/nats"
	"github.com/bovicare/bovicare/internal/infrastructure/repository/postgres"
	"github.com/bovicare/bovicare/internal/infrastructure/resilience"
	"github.com/bovicare/bovicare/internal/infrastructure/rubricfile"
	"github.com/bovicare/bovicare/internal/infrastructure/storage/localfs"
	"github.com/bovicare/bovicare/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue ports.MessageQueue
	Repo  ports.DocumentRepository

	AskUC      ports.QuestionService
	EvaluateUC ports.AnswerEvaluator
	IngestUC   ports.DocumentIngestor
	ProcessUC  ports.DocumentProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	exec := resilience.NewExecutor(resilience.DefaultPolicy())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{Executor: exec})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, cfg.OllamaJudgeModel, exec)
	generator := ollama.NewGenerator(ollamaClient)
	embedder := ollama.NewEmbedder(ollamaClient)
	classifier := ollama.NewClassifier(ollamaClient)
	judge := ollama.NewJudge(ollamaClient)

	vectorClient := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	retriever := qdrant.NewRetriever(vectorClient, embedder)

	var graph ports.DiseaseGraph
	if cfg.Neo4jURI != "" {
		diseaseGraph, err := neo4j.New(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			return nil, fmt.Errorf("init disease graph: %w", err)
		}
		graph = diseaseGraph
	}

	rubrics := usecase.BuiltinRubrics()
	if cfg.RubricFile != "" {
		loaded, err := rubricfile.Load(cfg.RubricFile)
		if err != nil {
			return nil, fmt.Errorf("load rubric file: %w", err)
		}
		rubrics = rubricfile.Merge(rubrics, loaded)
		slog.Info("rubric_overrides_loaded", "path", cfg.RubricFile, "categories", len(loaded))
	}

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	textExtractor := extractor.NewDispatcher(storage)

	fusion := usecase.NewFusionRanker(retriever, cfg.RAGOverfetchFactor)
	reranker := usecase.NewRelevanceReranker(judge)

	askUC := usecase.NewAskUseCase(fusion, reranker, generator, graph, cfg.RAGDenseWeight, cfg.RAGSparseWeight)
	evaluateUC := usecase.NewRubricEvaluationEngine(judge, rubrics, usecase.GraderOptions{MaxAttempts: cfg.GraderMaxAttempts})
	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, textExtractor, classifier, chunker, embedder, vectorClient, graph)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		AskUC:      askUC,
		EvaluateUC: evaluateUC,
		IngestUC:   ingestUC,
		ProcessUC:  processUC,

		closeFn: func() {
			queue.Close()
			if closer, ok := graph.(interface{ Close(context.Context) error }); ok {
				_ = closer.Close(context.Background())
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
