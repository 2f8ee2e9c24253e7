package main

// General API documentation for swaggo. Run `make swagger-gen` to regenerate docs.
//
// @title           traind API
// @version         1.0
// @description     HTTP API for local model training: device selection, model management and training jobs.
//
// @contact.name   traind maintainers
// @contact.url    https://github.com/your-org/traind
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
