/*
Package composenet attaches dependency networks to the services of a Docker
Compose file.

Given a compose file and a comma-separated list of labels, composenet:
  - derives one network per label ("<label>_dependencies_net") plus the
    "traefik_net" network that is always attached last
  - attaches every derived network to every service that lacks it
  - declares every derived network in the top-level networks table with
    the overlay driver, unless it is declared already

The result is printed on stdout; the input file is never modified.

# Configuration

Defaults can be changed in a .composenet.yaml settings file, through
COMPOSENET_* environment variables, or with flags, in increasing order of
precedence.

# Usage

	composenet docker-compose.yml "billing, auth"   # Print the augmented file
	composenet check docker-compose.yml             # Check the file shape
	composenet init                                 # Write a settings file
*/
package composenet

// Version is the current version of composenet
const Version = "1.0.0"

// BuildDate is set at build time
var BuildDate string

// GitCommit is set at build time
var GitCommit string
