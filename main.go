package main

import "github.com/killallgit/waskita-api/cmd"

// @title           Waskita API
// @version         1.0.0
// @description     Social media scraping, upload ingestion, cleaning and radicalism classification pipeline
// @contact.name    API Support
// @contact.url     https://github.com/killallgit/waskita-api
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8080
// @BasePath        /
// @schemes         http https
func main() {
	cmd.Execute()
}
