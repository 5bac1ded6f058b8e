package main

import (
	"messages-service/errors"
)

const (
	BadgerBackend = "badger"
	MongoBackend  = "mongo"
)

type Config struct {
	StoreBackend      string `env:"STORE_BACKEND,default=badger"`
	BadgerFilepath    string `env:"BADGER_FILEPATH"`
	MongoURI          string `env:"MONGO_URI"`
	MongoDatabase     string `env:"MONGO_DATABASE,default=messages"`
	SequenceBandwidth int    `env:"SEQUENCE_BANDWIDTH,default=100"`
	TxnRetries        int    `env:"TXN_RETRIES,default=3"`
	LogLevel          string `env:"LOG_LEVEL,default=INFO"`
	Host              string `env:"HOST,default=localhost"`
	Port              int    `env:"PORT,default=8080"`
	DebugPort         *int   `env:"DEBUG_PORT"`
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case BadgerBackend:
		if c.BadgerFilepath == "" {
			return errors.ErrMissingBadgerPath
		}
		if c.SequenceBandwidth < 1 || c.TxnRetries < 0 {
			return errors.ErrInvalidTuning
		}
	case MongoBackend:
		if c.MongoURI == "" {
			return errors.ErrMissingMongoURI
		}
	default:
		return errors.ErrUnknownBackend
	}
	return nil
}
