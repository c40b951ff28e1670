/*
Package config loads the browser's configuration with a simple precedence
order: compiled-in defaults, then an optional YAML file, then environment
variables.

# Usage

	cfg := config.NewDefault()
	if err := cfg.LoadFromFile(path); err != nil {
		log.Fatal(err)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

# Environment variables

	SNAPVAULT_S3_ENDPOINT
	SNAPVAULT_S3_PUBLIC_ENDPOINT
	SNAPVAULT_S3_ACCESS_KEY
	SNAPVAULT_S3_SECRET_KEY
	SNAPVAULT_S3_REGION
	SNAPVAULT_S3_POOL_SIZE
	SNAPVAULT_RSYNC_HOST
	SNAPVAULT_RSYNC_USER
	SNAPVAULT_SSH_KEY_PATH
	SNAPVAULT_SNAPSHOT_DIR
	SNAPVAULT_S3_ROOT_PREFIX
	SNAPVAULT_AUTH_MODE
	SNAPVAULT_AUTH_USERNAME
	SNAPVAULT_AUTH_PASSWORD
	SNAPVAULT_REMOTE_CONFIG_PATH
	SNAPVAULT_LOG_LEVEL
	SNAPVAULT_LISTEN_ADDR
	SNAPVAULT_METRICS_PORT

Credentials can be set in the YAML file or through the environment; an
environment variable that is set overrides the file's value.
*/
package config
