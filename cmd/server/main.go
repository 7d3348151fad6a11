package main

import (
	"os"

	_ "dispatch/docs"
)

// @title           Dispatch API
// @version         1.0
// @description     Crew and vehicle dispatch scheduling for construction projects.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
