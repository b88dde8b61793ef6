package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"document-qa/internal/chromemdb"
	"document-qa/internal/chunker"
	"document-qa/internal/config"
	"document-qa/internal/db"
	"document-qa/internal/embedding"
	"document-qa/internal/helper"
	"document-qa/internal/ingest"
	"document-qa/internal/llmservice"
	"document-qa/internal/rag"
	"document-qa/internal/server"
	"document-qa/internal/tokenizer"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}

	configPath := flag.String("config", defaultConfigPath, "Path to the YAML config file")
	serve := flag.Bool("serve", false, "Run the HTTP API server")
	filePath := flag.String("file", "", "Path to a document file to ingest")
	fileName := flag.String("name", "", "Display name for the ingested file (defaults to the file's base name)")
	query := flag.String("query", "", "Question to answer against the ingested documents")
	flag.Parse()

	if *filePath != "" && *query != "" {
		log.Fatal().Msg("Provide either -file or -query, but not both")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	switch {
	case *serve:
		runServer(cfg)
	case *filePath != "":
		ingestFile(context.Background(), cfg, *filePath, *fileName)
	case *query != "":
		askQuestion(context.Background(), cfg, *query)
	default:
		log.Fatal().Msg("Provide -serve, -file, or -query")
	}
}

// pipeline bundles the collaborators every mode needs.
type pipeline struct {
	ingestor *ingest.Ingestor
	rag      *rag.RAG
	store    *db.Store
	close    func()
}

func buildPipeline(cfg *config.Config) (*pipeline, error) {
	tok, err := tokenizer.New(cfg.RAG.Encoding)
	if err != nil {
		return nil, fmt.Errorf("init tokenizer: %w", err)
	}
	builder, err := chunker.NewBuilder(tok, cfg.RAG.ChunkTokens, cfg.RAG.OverlapTokens)
	if err != nil {
		return nil, fmt.Errorf("init chunker: %w", err)
	}

	if err := helper.CreateFolder(cfg.VectorDir()); err != nil {
		return nil, fmt.Errorf("create vector dir: %w", err)
	}
	vectors, err := chromemdb.NewStore(cfg.VectorDir(), cfg.Storage.Collection, false)
	if err != nil {
		return nil, fmt.Errorf("init vector store: %w", err)
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	llm, err := llmservice.NewClient(&cfg.ChatLLM)
	if err != nil {
		return nil, fmt.Errorf("init chat client: %w", err)
	}

	dbClient, err := db.ConnectDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	dbInstance := db.NewDB(dbClient, cfg.Database.Debug)
	if err := db.InitDB(context.Background(), dbInstance); err != nil {
		dbInstance.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}
	store := &db.Store{DB: dbInstance}

	return &pipeline{
		ingestor: ingest.NewIngestor(builder, embedder, vectors, store),
		rag:      rag.NewRAG(embedder, vectors, llm, cfg.RAG.TopK),
		store:    store,
		close:    func() { dbInstance.Close() },
	}, nil
}

func runServer(cfg *config.Config) {
	p, err := buildPipeline(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error building pipeline")
	}
	defer p.close()

	srv := server.NewServer(p.ingestor, p.rag, p.store, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("Server stopped")
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
	}
}

func ingestFile(ctx context.Context, cfg *config.Config, filePath, fileName string) {
	p, err := buildPipeline(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error building pipeline")
	}
	defer p.close()

	if fileName == "" {
		fileName = filepath.Base(filePath)
	}
	storagePath, err := storeUpload(cfg, filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", filePath).Msg("Error storing upload")
	}
	result, err := p.ingestor.IngestFile(ctx, storagePath, fileName, filepath.Base(filePath))
	if err != nil {
		os.Remove(storagePath)
		log.Fatal().Err(err).Str("file", filePath).Msg("Error ingesting document")
	}
	log.Info().Str("file_id", result.FileID).Int("chunks", result.NumChunks).Msg("Ingested document")
	helper.PrettyPrint(result)
}

// storeUpload copies the document into the managed upload dir so the
// original file is never touched by a later delete.
func storeUpload(cfg *config.Config, filePath string) (string, error) {
	if err := helper.CreateFolder(cfg.UploadDir()); err != nil {
		return "", err
	}
	uid, err := helper.GenerateUUID()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(cfg.UploadDir(), uid+filepath.Ext(filePath))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", err
	}
	return dst, nil
}

func askQuestion(ctx context.Context, cfg *config.Config, query string) {
	p, err := buildPipeline(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error building pipeline")
	}
	defer p.close()

	answer, err := p.rag.Answer(ctx, query)
	if err != nil {
		log.Fatal().Err(err).Msg("Error answering question")
	}

	entry := &db.History{
		Question: answer.Question,
		Answer:   answer.Text,
		Sources:  answer.Context,
	}
	if err := p.store.InsertHistory(ctx, entry); err != nil {
		log.Warn().Err(err).Msg("Could not record history entry")
	}

	fmt.Printf("Question:\n%s\n\n", answer.Question)
	fmt.Printf("Sources:\n")
	for _, item := range answer.Context {
		fmt.Printf("  [%d] %s (chunk %d, page %d, score %.3f)\n",
			item.Rank, item.FileName, item.ChunkNumber, item.PageNumber, item.Score)
	}
	fmt.Printf("\nAnswer:\n%s\n", answer.Text)
}
