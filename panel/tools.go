package panel

import "github.com/op/go-logging"

var log = logging.MustGetLogger("panel")
