package config

import (
	"flag"
	"os"
	"time"

	"github.com/readease/readease/internal/flagx"
)

var knownFlags = []string{
	"-a", "-d", "-s", "-t", "-r", "-w", "-k", "-o", "-i",
	"-m", "-u", "-p", "-f", "-l", "-g", "-n",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-w int      reset-password token validity, minutes
//	-k string   storage backend: postgres | memory
//	-o string   token store backend: postgres | redis | memory
//	-i string   Redis address
//	-m string   SMTP address host:port (empty logs emails instead)
//	-u string   SMTP user
//	-p string   SMTP password
//	-f string   mail From address
//	-l string   reset-password link base
//	-g int      default role ID
//	-n string   refresh cookie domain
//
// Only the flags above are parsed (os.Args is filtered with flagx.FilterArgs),
// so the -c/-config flag handled by parseJson does not collide. Durations are
// integers in minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshMinutes := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")
	resetMinutes := fs.Int("w", int(config.ResetPasswordTokenValidityDuration.Minutes()), "reset password token validity (in minutes)")

	fs.StringVar(&config.Storage, "k", config.Storage, "storage backend (postgres|memory)")
	fs.StringVar(&config.TokenStore, "o", config.TokenStore, "token store backend (postgres|redis|memory)")
	fs.StringVar(&config.RedisAddr, "i", config.RedisAddr, "redis address")
	fs.StringVar(&config.SMTPAddr, "m", config.SMTPAddr, "SMTP address")
	fs.StringVar(&config.SMTPUser, "u", config.SMTPUser, "SMTP user")
	fs.StringVar(&config.SMTPPassword, "p", config.SMTPPassword, "SMTP password")
	fs.StringVar(&config.MailFrom, "f", config.MailFrom, "mail from address")
	fs.StringVar(&config.ResetPasswordURL, "l", config.ResetPasswordURL, "reset password link base")
	fs.IntVar(&config.DefaultRoleID, "g", config.DefaultRoleID, "default role ID")
	fs.StringVar(&config.CookieDomain, "n", config.CookieDomain, "refresh cookie domain")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessMinutes) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshMinutes) * time.Minute
	config.ResetPasswordTokenValidityDuration = time.Duration(*resetMinutes) * time.Minute
}
