package settings

import "os"

// envLookup is a seam for tests.
var envLookup = os.Getenv
