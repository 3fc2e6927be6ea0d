package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/argus/api/activity"
	"github.com/dev-mohitbeniwal/argus/api/config"
	"github.com/dev-mohitbeniwal/argus/api/controller"
	"github.com/dev-mohitbeniwal/argus/api/db"
	logger "github.com/dev-mohitbeniwal/argus/api/logging"
	"github.com/dev-mohitbeniwal/argus/api/router"
	"github.com/dev-mohitbeniwal/argus/api/service"
	"github.com/dev-mohitbeniwal/argus/api/source"
	"github.com/dev-mohitbeniwal/argus/api/ticket"
	"github.com/dev-mohitbeniwal/argus/api/util"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger(config.GetString("log.dir"))
	defer logger.Sync()

	// Initialize Neo4j
	if err := db.InitNeo4j(); err != nil {
		logger.Fatal("Failed to initialize Neo4j", zap.Error(err))
	}
	defer db.CloseNeo4j()

	// Initialize Redis
	if err := db.InitRedis(); err != nil {
		logger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer db.CloseRedis()

	// Initialize EventBus
	eventBus := util.NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventBus.Start(ctx)

	// Initialize utilities
	validationUtil := util.NewValidationUtil()
	cacheService := util.NewCacheService()
	notificationService := util.NewNotificationService()

	// Initialize the activity ledger
	activityRepository, err := activity.NewElasticsearchRepository(config.GetString("elasticsearch.url"))
	if err != nil {
		logger.Fatal("Failed to initialize activity ledger", zap.Error(err))
	}
	activityService := activity.NewService(activityRepository)

	// Initialize the issue tracker client
	ticketClient := ticket.NewJiraClient(
		config.GetString("jira.baseURL"),
		config.GetString("jira.username"),
		config.GetString("jira.apiToken"),
		config.GetDuration("jira.requestTimeout"),
	)
	ticketOpts := ticket.Options{
		DefaultProject: config.GetString("jira.defaultProject"),
		Projects:       viper.GetStringMapString("jira.projects"),
		CustomFields:   loadCustomFields(),
		IssueType:      config.GetString("jira.issueType"),
	}

	// Initialize source adapters
	adapters := []source.Adapter{
		source.NewDirectoryGroupAdapter(config.GetString("sources.directoryGroup.url")),
		source.NewCodeHostAdapter(config.GetString("sources.codeHost.url")),
		source.NewDirectoryServiceAdapter(config.GetString("sources.directoryService.url")),
	}

	reconciliationCfg := service.ReconciliationConfig{
		AdapterTimeout:        config.GetDuration("reconciliation.adapterTimeout"),
		MaxConcurrentFetches:  config.GetInt("reconciliation.maxConcurrentFetches"),
		AllowCompletedRefresh: config.GetBool("reconciliation.allowCompletedRefresh"),
	}

	// Initialize services
	services, err := service.InitializeServices(
		db.Neo4jDriver,
		activityService,
		ticketClient,
		ticketOpts,
		adapters,
		reconciliationCfg,
		validationUtil,
		cacheService,
		notificationService,
		eventBus,
	)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	// Initialize controllers
	controllers := controller.InitializeControllers(services)

	// Set up the router
	engine := router.SetupRouter(controllers, 100, time.Minute) // 100 requests per minute

	// Set up the server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.GetString("server.port")),
		Handler: engine,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", config.GetString("server.port")))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

// loadCustomFields reads the per-application ticket custom fields, e.g.
// jira.customFields.payments.customfield_10200: "Quarterly Review".
func loadCustomFields() map[string]map[string]string {
	fields := make(map[string]map[string]string)
	for app := range viper.GetStringMap("jira.customFields") {
		fields[app] = viper.GetStringMapString("jira.customFields." + app)
	}
	return fields
}
