package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v11"
)

// ErrInvalidConfig is returned when the provided config is not a pointer to a struct
// that embeds EnvConfig.
var ErrInvalidConfig = errors.New("config must be a pointer to a struct embedding EnvConfig")

// EnvConfig is a base type that must be embedded in configuration structs
// to enable environment variable parsing.
type EnvConfig struct {
	namespace string
}

// Namespace returns the prefix the configuration was parsed with.
func (c EnvConfig) Namespace() string {
	return c.namespace
}

//nolint:varnamelen
func getEnvConfig(cfg any) (*EnvConfig, error) {
	v := reflect.ValueOf(cfg)

	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, ErrInvalidConfig
	}

	v = v.Elem()
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		//nolint:exhaustruct,forcetypeassert
		if field.Anonymous && field.Type == reflect.TypeOf(EnvConfig{}) {
			if ev := v.Field(i); ev.CanAddr() {
				return ev.Addr().Interface().(*EnvConfig), nil
			}
		}
	}

	return nil, ErrInvalidConfig
}

// Parse loads configuration values from environment variables into the provided struct.
// The struct must embed EnvConfig and use `env`, `envDefault` and `envPrefix` tags.
//
// The namespace is an underscore separated prefix. A variable is looked up under the
// most specific namespace first, then under each shorter one, then without prefix:
// for namespace "EXAM_EXAMSVC" and tag "LOG_LEVEL" the candidates are
// EXAM_EXAMSVC_LOG_LEVEL, EXAM_LOG_LEVEL and LOG_LEVEL.
func Parse(ctx context.Context, cfg any, namespace string) error {
	envConfig, err := getEnvConfig(cfg)
	if err != nil {
		return fmt.Errorf("get env config: %w", err)
	}

	envConfig.namespace = namespace

	//nolint:exhaustruct
	if err := env.ParseWithOptions(cfg, env.Options{
		Environment: namespacedEnvironment(os.Environ(), namespace),
	}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}

// namespacedEnvironment flattens environ so that variables under a more specific
// namespace shadow the less specific ones.
func namespacedEnvironment(environ []string, namespace string) map[string]string {
	vars := env.ToMap(environ)

	out := make(map[string]string, len(vars))
	for k, v := range vars {
		out[k] = v
	}

	if namespace == "" {
		return out
	}

	nsParts := strings.Split(namespace, "_")

	for i := 1; i <= len(nsParts); i++ {
		prefix := strings.Join(nsParts[:i], "_") + "_"

		for k, v := range vars {
			if name, ok := strings.CutPrefix(k, prefix); ok && name != "" {
				out[name] = v
			}
		}
	}

	return out
}
