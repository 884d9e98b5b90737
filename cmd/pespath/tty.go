package main

import "os"

// stderrIsTTY is a small seam for tests.
var stderrIsTTY = func() bool { return isTerminal(os.Stderr) }
