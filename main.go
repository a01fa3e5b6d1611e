package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"studyquest/config"
	"studyquest/helpers"
	"studyquest/routes"
	"studyquest/services"
)

func main() {

	log.Println("Starting application...")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	key := config.GenerateRandomKey()
	helpers.SetJWTKey(key)

	services.EnsureMissionIndexes()

	// Mission progress engine wiring: Mongo-backed collaborators behind the
	// engine's narrow interfaces.
	ledger := services.NewMongoLedger()
	engine := services.NewMissionEngine(
		services.NewMongoProgressStore(),
		ledger,
		services.NewMongoCounterReader(),
		services.NewMongoSessionReader(),
		services.NewMongoMissionCatalog(),
		services.NewMongoPardonWallet(),
	)
	throttle := services.NewResetThrottle()

	//Init gin router
	r := gin.Default()
	api := r.Group("/api")
	routes.SetupRoutes(api, engine, ledger, throttle)

	r.Static("/static", "./static")
	r.GET("/", func(c *gin.Context) { c.File("./static/index.html") })
	r.GET("/login", func(c *gin.Context) { c.File("./static/index.html") })
	r.GET("/signup", func(c *gin.Context) { c.File("./static/signup.html") })
	r.GET("/dashboard", func(c *gin.Context) { c.File("./static/dashboard.html") })

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	//Start the server
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
