package start

import "github.com/op/go-logging"

var log = logging.MustGetLogger("start")
