package bootstrap

import (
	"context"
	"database/sql"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"contract-backend/internal/audit"
	"contract-backend/internal/chunker"
	"contract-backend/internal/documents"
	"contract-backend/internal/embedding"
	embeddingopenai "contract-backend/internal/embedding/openai"
	"contract-backend/internal/fields"
	"contract-backend/internal/index"
	"contract-backend/internal/jobs"
	"contract-backend/internal/llm"
	llmopenai "contract-backend/internal/llm/openai"
	"contract-backend/internal/questions"
	"contract-backend/internal/queue"
	"contract-backend/internal/retrieval"
	"contract-backend/internal/shared/config"
	"contract-backend/internal/shared/server"
	"contract-backend/internal/shared/storage/db"
	"contract-backend/internal/shared/storage/object"
	localstore "contract-backend/internal/shared/storage/object/local"
	s3store "contract-backend/internal/shared/storage/object/s3"
)

const localQueueBuffer = 256

// TaskProcessor allows callers to override task processing for tests.
type TaskProcessor interface {
	ProcessTask(ctx context.Context, taskID string) error
}

// App holds shared dependencies for the API and worker processes.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	// LocalQueue is set when no SQS queue is configured; the process
	// drains it with in-process workers.
	LocalQueue *queue.LocalClient

	Indexes *index.Source

	DocumentsRepo documents.Repo
	QuestionsRepo questions.Repo
	FieldsRepo    fields.Repo
	AuditRepo     audit.Repo
	TasksRepo     jobs.Repo

	DocumentsService *documents.Service
	QuestionsService *questions.Service
	FieldsService    *fields.Service
	AuditService     *audit.Service

	Scheduler     *jobs.Scheduler
	Processor     *jobs.Processor
	TaskProcessor TaskProcessor

	DocumentsHandler *documents.Handler
	QuestionsHandler *questions.Handler
	FieldsHandler    *fields.Handler
	AuditHandler     *audit.Handler
	JobsHandler      *jobs.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "development"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Store:   store,
		Indexes: buildIndexSource(sqlDB),
	}

	if err := buildQueue(ctx, cfg, app); err != nil {
		return nil, err
	}
	if err := buildServices(cfg, app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           cfg,
		DocumentsHandler: app.DocumentsHandler,
		QuestionsHandler: app.QuestionsHandler,
		FieldsHandler:    app.FieldsHandler,
		AuditHandler:     app.AuditHandler,
		JobsHandler:      app.JobsHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
		return nil, nil
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.DefaultServerOptions())
	if err != nil {
		if cfg.Env == "development" {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.StorageBackend {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStorePath), nil
	}
}

func buildIndexSource(sqlDB *sql.DB) *index.Source {
	source := &index.Source{Cache: index.NewStore()}
	if sqlDB != nil {
		source.Repo = &index.PGRepo{DB: sqlDB}
	} else {
		source.Repo = index.NewMemoryRepo()
	}
	return source
}

func buildQueue(ctx context.Context, cfg config.Config, app *App) error {
	if strings.TrimSpace(cfg.SQSQueueURL) != "" {
		client, err := queue.NewSQSClient(ctx, cfg.SQSQueueURL)
		if err != nil {
			return err
		}
		app.Queue = client
		return nil
	}
	local := queue.NewLocalClient(localQueueBuffer)
	app.Queue = local
	app.LocalQueue = local
	return nil
}

func buildServices(cfg config.Config, app *App) error {
	var (
		docRepo      documents.Repo
		questionRepo questions.Repo
		fieldRepo    fields.Repo
		auditRepo    audit.Repo
		taskRepo     jobs.Repo
	)
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		questionRepo = &questions.PGRepo{DB: app.DB}
		fieldRepo = &fields.PGRepo{DB: app.DB}
		auditRepo = &audit.PGRepo{DB: app.DB}
		taskRepo = &jobs.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		questionRepo = questions.NewMemoryRepo()
		fieldRepo = fields.NewMemoryRepo()
		auditRepo = audit.NewMemoryRepo()
		taskRepo = jobs.NewMemoryRepo()
	}

	llmClient, embedder, err := buildInference(cfg)
	if err != nil {
		return err
	}

	scheduler := &jobs.Scheduler{Repo: taskRepo, Queue: app.Queue}

	docSvc := &documents.Service{
		Repo:      docRepo,
		Store:     app.Store,
		Scheduler: scheduler,
		Indexes:   app.Indexes,
		Cleanup:   []documents.Cleaner{fieldRepo, auditRepo, taskRepo, questionRepo},
	}

	retriever := &retrieval.Retriever{Indexes: app.Indexes, Embedder: embedder}

	questionSvc := &questions.Service{
		Repo:      questionRepo,
		Docs:      docRepo,
		Scheduler: scheduler,
		Retriever: retriever,
		Synth:     &questions.Synthesizer{LLM: llmClient},
		TopK:      cfg.RetrievalTopK,
		MinScore:  cfg.RetrievalMinScore,
	}

	fieldSvc := &fields.Service{
		Repo:      fieldRepo,
		Text:      docSvc,
		Extractor: &fields.Extractor{LLM: llmClient},
		Scheduler: scheduler,
	}

	auditSvc := &audit.Service{
		Repo:      auditRepo,
		Pages:     docSvc,
		Fields:    fieldSvc,
		Engine:    audit.NewEngine(append(audit.BuiltinRules(), audit.ModelRule(llmClient, cfg.LLMModel))),
		Scheduler: scheduler,
	}

	var notifier jobs.Notifier = jobs.LogNotifier{}
	if strings.TrimSpace(cfg.WebhookURL) != "" {
		notifier = jobs.NewWebhookNotifier(cfg.WebhookURL)
	}

	processor := &jobs.Processor{
		Tasks:    taskRepo,
		Docs:     docRepo,
		Store:    app.Store,
		Indexes:  app.Indexes,
		Embedder: embedder,
		ChunkCfg: chunker.Config{
			Size:    cfg.ChunkSize,
			Overlap: cfg.ChunkOverlap,
			MinSize: cfg.ChunkMinSize,
		},
		Fields:    fieldSvc,
		Audit:     auditSvc,
		Questions: questionSvc,
		Scheduler: scheduler,
		Notifier:  notifier,
	}

	app.DocumentsRepo = docRepo
	app.QuestionsRepo = questionRepo
	app.FieldsRepo = fieldRepo
	app.AuditRepo = auditRepo
	app.TasksRepo = taskRepo
	app.DocumentsService = docSvc
	app.QuestionsService = questionSvc
	app.FieldsService = fieldSvc
	app.AuditService = auditSvc
	app.Scheduler = scheduler
	app.Processor = processor
	app.TaskProcessor = processor
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.QuestionsHandler = questions.NewHandler(questionSvc)
	app.FieldsHandler = fields.NewHandler(fieldSvc)
	app.AuditHandler = audit.NewHandler(auditSvc)
	app.JobsHandler = jobs.NewHandler(taskRepo, docRepo)

	return nil
}

func buildInference(cfg config.Config) (llm.Client, embedding.Embedder, error) {
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		log.Printf("bootstrap: OPENAI_API_KEY empty; inference calls will fail until configured")
		return llm.PlaceholderClient{}, placeholderEmbedder{model: cfg.EmbeddingModel}, nil
	}

	llmClient, err := llmopenai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	if err != nil {
		return nil, nil, err
	}
	embedder, err := embeddingopenai.NewClient(embeddingopenai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.EmbeddingModel,
		Timeout: cfg.LLMTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return llmClient, embedder, nil
}

type placeholderEmbedder struct {
	model string
}

func (p placeholderEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	_ = ctx
	_ = texts
	return nil, embedding.ErrUnavailable
}

func (p placeholderEmbedder) ModelID() string { return p.model }
