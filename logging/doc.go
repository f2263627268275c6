/*
Package logging implements the application log setup.

# Application Log

The application log uses the logrus package:

https://github.com/sirupsen/logrus

To send messages to the application log, import logrus and use its
methods. Example:

	import log "github.com/sirupsen/logrus"

	func doSomething() {
	    log.Errorf("nothing to do")
	}

During startup initialization, it is possible to redirect the log output
from the default /dev/stderr to another file, to set the level, to switch
to JSON output, and to set a common prefix for each log entry.

Components that take a logger accept the Logger interface. Standard
returns one backed by the logrus standard logger.
*/
package logging
