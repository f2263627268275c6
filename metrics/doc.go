/*
Package metrics implements collection of the performance metrics of
matching collections.

It provides two backends. CodaHale uses the Go implementation of the
Coda Hale metrics library:

https://github.com/dropwizard/metrics

Prometheus uses the Prometheus Go client, and exposes the metrics in the
Prometheus exposition format.

The collected metrics include the duration of the collection lookups,
the number of hits and misses, and the number of added and rejected
entries. For the keys used for the different metrics, see the Key*
constants.

# Options

The backend is selected with the Format field of the Options. Without
a known format, the measurements are discarded.
*/
package metrics
