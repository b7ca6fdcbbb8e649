// Package argconf merges configuration files and command line arguments
// into a single resolved namespace. Each Option is declared once with
// names across three domains: config paths (section:key), flags (-x,
// --xxx), and bare positional names. Values resolved from the config file
// become the flag layer's defaults, so the command line always wins over
// the file, which wins over declared defaults.
//
// Required options are satisfiable from either source: a value missing
// from the file travels through the flag parse as a placeholder and only
// turns into an error if the command line never supplies it either.
package argconf
