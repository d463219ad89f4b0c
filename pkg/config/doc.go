// Package config loads application configuration from environment
// variables into tagged structs.
//
// It wraps github.com/joho/godotenv for optional .env files and
// github.com/caarlos0/env/v11 for parsing. Each configuration type is parsed
// once and cached for the lifetime of the process; parse failures are not
// cached.
//
//	type Config struct {
//		MongoURL string `env:"MONGODB_URL,required"`
//		Port     int    `env:"HTTP_PORT" envDefault:"8080"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
// Failures match ErrParsingConfig via errors.Is and carry the parser's
// message naming the missing or malformed variables. ResetCache and
// ForceReloadConfig exist for tests that change the environment.
package config
