package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/dockeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-l string   public base URL for action links
//	-t int      action token validity, hours
//	-w int      scan worker count
//	-m string   SMTP host
//	-o int      SMTP port
//	-n string   SMTP username
//	-q string   SMTP password
//	-f string   SMTP sender address
//	-k int      webhook timeout, seconds
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers (hours or seconds) and then
//     converted to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-l", "-t", "-w",
		"-m", "-o", "-n", "-q", "-f", "-k",
		"-u", "-p", "-b", "-g", "-e",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.PublicBaseURL, "l", config.PublicBaseURL, "public base URL for action links")

	actionTokenValidityDuration := fs.Int("t", int(config.ActionTokenValidityDuration.Hours()), "action_token_validity_duration (in hours)")
	fs.IntVar(&config.ScanWorkers, "w", config.ScanWorkers, "scan worker count")

	fs.StringVar(&config.SMTPHost, "m", config.SMTPHost, "SMTP host")
	fs.IntVar(&config.SMTPPort, "o", config.SMTPPort, "SMTP port")
	fs.StringVar(&config.SMTPUsername, "n", config.SMTPUsername, "SMTP username")
	fs.StringVar(&config.SMTPPassword, "q", config.SMTPPassword, "SMTP password")
	fs.StringVar(&config.SMTPFrom, "f", config.SMTPFrom, "SMTP sender address")

	webhookTimeout := fs.Int("k", int(config.WebhookTimeout.Seconds()), "webhook_timeout (in seconds)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.ActionTokenValidityDuration = time.Duration(*actionTokenValidityDuration) * time.Hour
	config.WebhookTimeout = time.Duration(*webhookTimeout) * time.Second
}
