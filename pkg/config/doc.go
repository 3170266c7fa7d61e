// Package config loads typed configuration from environment variables using
// caarlos0/env struct tags, with optional .env files read by godotenv.
//
// Each component declares its own struct (httpserver.Config,
// checkout.PaddleConfig, blob.Config, ...) and the entry point loads them:
//
//	httpCfg := config.MustLoad[httpserver.Config]()
//	paddleCfg, err := config.Load[checkout.PaddleConfig]()
//
// Results read from the process environment are cached per type, so repeated
// loads are cheap. WithEnvironment parses an explicit map instead, which keeps
// tests independent of the process environment.
package config
