package main

import (
	_ "x402_gateway/docs"
	"x402_gateway/internal/adapter/http/routes"

	_ "github.com/joho/godotenv/autoload"
)

// @title           x402 Gateway API
// @version         1.0
// @description     Pay-per-request HTTP gateway speaking the x402 protocol, with a durable settlement queue.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	routes.Run()
}
