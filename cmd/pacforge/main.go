package main

import (
	"fmt"
	"os"

	"github.com/mjwhitta/cli"
)

// Version info
var version = "0.1.0"

// Exit codes
const (
	ExitSuccess = iota
	ExitError
	ExitMissingArg
)

// Global flags
var flags struct {
	domain    string
	username  string
	fullName  string
	domainSID string
	rid       uint64
	groups    string
	extraSIDs string
	key       string
	password  string
	etype     string
	outfile   string
	verbose   bool
}

// Command to run
var command string
var cmdArgs []string

func init() {
	// Configure cli
	cli.Align = true
	cli.Authors = []string{"pacforge authors"}
	cli.Banner = fmt.Sprintf("%s [OPTIONS] <command> [args...]", os.Args[0])
	cli.Info(
		"Pacforge - Kerberos PAC codec and signing toolkit",
		"",
		"Decode, build, re-sign and mine PACs: full KERB_VALIDATION_INFO",
		"round-trips, credential extraction, golden-ticket style forging.",
	)
	cli.ExitStatus(
		"0 - Success",
		"1 - Error",
	)

	// Define flags (short, long, default, description)
	cli.Flag(&flags.domain, "d", "domain", "", "Domain name (NetBIOS or DNS)")
	cli.Flag(&flags.username, "u", "user", "", "Username (sAMAccountName)")
	cli.Flag(&flags.fullName, "n", "name", "", "Full display name")
	cli.Flag(&flags.domainSID, "s", "sid", "", "Domain SID (S-1-5-21-...)")
	cli.Flag(&flags.rid, "r", "rid", uint64(500), "User RID")
	cli.Flag(&flags.groups, "g", "groups", "513,512,520,518,519", "Group RIDs, comma-separated")
	cli.Flag(&flags.extraSIDs, "x", "extra-sids", "", "Extra SIDs, comma-separated")
	cli.Flag(&flags.key, "k", "key", "", "Signing/decryption key (hex)")
	cli.Flag(&flags.password, "p", "pass", "", "Password (key derived per etype)")
	cli.Flag(&flags.etype, "e", "etype", "aes256", "Encryption type: rc4, aes128, aes256")
	cli.Flag(&flags.outfile, "o", "out", "", "Output file")
	cli.Flag(&flags.verbose, "v", "verbose", false, "Verbose output")

	// Commands section
	cli.Section("Commands",
		"  describe  Decode a PAC file and display its contents\n",
		"  build     Forge and sign a PAC from scratch\n",
		"  resign    Re-sign an existing PAC with a new key\n",
		"  creds     Decrypt PAC credentials, extract NTLM hash\n",
		"  hash      Compute Kerberos keys from password",
	)

	cli.Parse()

	// Get command from args
	if cli.NArg() == 0 {
		cli.Usage(ExitMissingArg)
	}

	command = cli.Arg(0)
	if cli.NArg() > 1 {
		cmdArgs = cli.Args()[1:]
	}
}

func main() {
	var err error
	switch command {
	case "describe":
		err = cmdDescribe(cmdArgs)
	case "build":
		err = cmdBuild(cmdArgs)
	case "resign":
		err = cmdResign(cmdArgs)
	case "creds":
		err = cmdCreds(cmdArgs)
	case "hash":
		err = cmdHash(cmdArgs)
	case "version":
		fmt.Println(version)
	case "help":
		cli.Usage(ExitSuccess)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		cli.Usage(ExitError)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
