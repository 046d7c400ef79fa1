// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package env provides typed getters for environment variables. A required
// variable that is missing or unparseable yields an error; an optional one
// falls back to the given default.
package env

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// GetAsString reads key as a string.
func GetAsString(key string, required bool, defaultValue string) (string, error) {
	value := os.Getenv(key)
	if value != "" {
		return value, nil
	}

	if required {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}

	return defaultValue, nil
}

// GetAsInt reads key as an integer.
func GetAsInt(key string, required bool, defaultValue int) (int, error) {
	value, err := GetAsString(key, required, strconv.Itoa(defaultValue))
	if err != nil {
		return 0, err
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		if required {
			return 0, fmt.Errorf("environment variable %s must be an integer: %w", key, err)
		}

		return defaultValue, nil
	}

	return parsed, nil
}

// GetAsBool reads key as a boolean. Besides strconv's forms it accepts
// yes/no and on/off, case-insensitively.
func GetAsBool(key string, required bool, defaultValue bool) (bool, error) {
	value, err := GetAsString(key, required, strconv.FormatBool(defaultValue))
	if err != nil {
		return false, err
	}

	switch strings.ToLower(value) {
	case "true", "1", "yes", "y", "on":
		return true, nil
	case "false", "0", "no", "n", "off":
		return false, nil
	}

	if required {
		return false, fmt.Errorf("environment variable %s must be a boolean value", key)
	}

	return defaultValue, nil
}
