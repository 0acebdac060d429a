package config

import (
	"fmt"
	"log"
)

// Require reports a missing env value as an error so callers can decide how
// to fail.
func Require(value, envName string) error {
	if value == "" {
		return fmt.Errorf("missing required env %s", envName)
	}
	return nil
}

func MustNonEmpty(value, envName string) {
	if err := Require(value, envName); err != nil {
		log.Fatal(err)
	}
}
