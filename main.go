package main

import (
	"context"
	"time"

	"github.com/veriphone/veriphone/internal/app"
)

// @title           Veriphone API
// @version         1.0
// @description     Veriphone places automated voice verification calls and validates one-time codes as a second authentication factor.
// @contact.name    Contact Support
// @contact.url     https://veriphone.dev/contact
// @contact.email   support@veriphone.dev
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT.
func main() {
	application := app.New()    // Initialize the application
	wait := application.Start() // Start the application and wait for the termination signal
	<-wait                      // Wait for the application to receive a termination signal
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx) // Stop the application gracefully
}
