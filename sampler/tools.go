package sampler

import "github.com/op/go-logging"

var log = logging.MustGetLogger("sampler")
