package loader

import "github.com/sirupsen/logrus"

// log is the package-wide logger; the Loader binds fields onto it per
// call site rather than carrying a logger field through every struct, a
// convention grafana-k6 uses throughout its module-resolution code.
var log = logrus.WithField("component", "loader")
