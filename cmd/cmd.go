// Package cmd provides the commands of the syslog client and server
package cmd

import (
	"github.com/relex/gotils/config"
)

func init() {
	config.AddParentCmdWithArgs("", "syslog-tools sends and receives syslog messages for diagnostics", &rootCmd, rootCmd.preRun, rootCmd.postRun)
	config.AddCmdWithArgs("client <udp|tcp|tls> [message...]", "Send messages to a syslog server", &clientCmd, clientCmd.run)
	config.AddCmdWithArgs("server <tcp|tls>", "Receive and log syslog messages", &serverCmd, serverCmd.run)
}

// Execute parses the command line and runs the specified command
func Execute() {
	// trigger init

	config.Execute()
}
