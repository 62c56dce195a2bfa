// Package config loads the JSON configuration shared by the sonar tools.
//
// A missing file yields Default. Environment variables SONAR_LOG_LEVEL and
// SONAR_WORKERS override the file when ApplyEnv is called.
package config
