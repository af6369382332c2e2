package base

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/relex/gotils/logger"
)

// MetricFactory creates Prometheus metrics under a common name prefix and fixed labels
//
// Metrics are registered globally. Factories of the same prefix share the registered metrics, so that
// a component can be created more than once in the same process (e.g. in tests).
type MetricFactory struct {
	namePrefix        string
	parentLabelNames  []string
	parentLabelValues []string
	registry          *metricRegistry
}

// metricRegistry is shared by a factory and its sub-factories
type metricRegistry struct {
	lock    sync.Mutex
	metrics map[string]prometheus.Collector
}

// curriableVec is implemented by CounterVec and GaugeVec
type curriableVec[V any] interface {
	prometheus.Collector
	CurryWith(labels prometheus.Labels) (V, error)
}

// NewMetricFactory creates a factory with prefix for metrics names and fixed labels for all metrics created from this new factory
func NewMetricFactory(prefix string, labelNames []string, labelValues []string) *MetricFactory {
	checkSameLength(labelNames, labelValues)
	return &MetricFactory{
		namePrefix:        prefix,
		parentLabelNames:  labelNames,
		parentLabelValues: labelValues,
		registry:          &metricRegistry{metrics: make(map[string]prometheus.Collector, 32)},
	}
}

// NewSubFactory creates a sub-factory which inherits the parent's prefix and fixed labels,
// with more prefix and fixed labels added to all metrics created from this new sub-factory
func (factory *MetricFactory) NewSubFactory(prefix string, labelNames []string, labelValues []string) *MetricFactory {
	checkSameLength(labelNames, labelValues)
	fullPrefix, allLabelNames, allLabelValues := factory.concatNameAndLabels(prefix, labelNames, labelValues)
	return &MetricFactory{
		namePrefix:        fullPrefix,
		parentLabelNames:  allLabelNames,
		parentLabelValues: allLabelValues,
		registry:          factory.registry,
	}
}

// AddOrGetCounter adds or gets a counter
func (factory *MetricFactory) AddOrGetCounter(name string, help string, labelNames []string, labelValues []string) prometheus.Counter {
	checkSameLength(labelNames, labelValues)
	return factory.AddOrGetCounterVec(name, help, labelNames, labelValues).WithLabelValues()
}

// AddOrGetCounterVec adds or gets a counter-vec with leftmost label values
func (factory *MetricFactory) AddOrGetCounterVec(name string, help string, labelNames []string, leftmostLabelValues []string) *prometheus.CounterVec {
	return addOrGetVec(factory, name, labelNames, leftmostLabelValues, func(fullName string, allLabelNames []string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{Name: fullName, Help: help}, allLabelNames)
	})
}

// AddOrGetGauge adds or gets a gauge
//
// Gauges must be updated by Add/Sub not Set, because there could be multiple updaters
func (factory *MetricFactory) AddOrGetGauge(name string, help string, labelNames []string, labelValues []string) prometheus.Gauge {
	checkSameLength(labelNames, labelValues)
	return factory.AddOrGetGaugeVec(name, help, labelNames, labelValues).WithLabelValues()
}

// AddOrGetGaugeVec adds or gets a gauge-vec with leftmost label values
//
// Gauges must be updated by Add/Sub not Set, because there could be multiple updaters
func (factory *MetricFactory) AddOrGetGaugeVec(name string, help string, labelNames []string, leftmostLabelValues []string) *prometheus.GaugeVec {
	return addOrGetVec(factory, name, labelNames, leftmostLabelValues, func(fullName string, allLabelNames []string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: fullName, Help: help}, allLabelNames)
	})
}

func addOrGetVec[V curriableVec[V]](factory *MetricFactory, name string, labelNames []string, leftmostLabelValues []string,
	create func(fullName string, allLabelNames []string) V) V {

	fullName, allLabelNames, allLeftmostLabelValues := factory.concatNameAndLabels(name, labelNames, leftmostLabelValues)

	vec := factory.registry.addOrGet(fullName, func() prometheus.Collector {
		return create(fullName, allLabelNames)
	}).(V)

	curryLabels := buildLabels(allLabelNames, allLeftmostLabelValues)
	curried, err := vec.CurryWith(curryLabels)
	if err != nil {
		logger.Panicf("failed to curry '%s' with %s: %s", fullName, curryLabels, err.Error())
	}
	return curried
}

// DumpMetrics dumps all metrics created in this factory and derived sub-factories into the .prom text format without comments
//
// For testing and debug logs
func (factory *MetricFactory) DumpMetrics(includeZeroValues bool) (string, error) {
	gatherer := prometheus.NewPedanticRegistry()
	for _, collector := range factory.registry.listByPrefix(factory.namePrefix) {
		if err := gatherer.Register(collector); err != nil {
			return "", fmt.Errorf("failed to add metric to gatherer: %w", err)
		}
	}
	metricFamilies, err := gatherer.Gather()
	if err != nil {
		return "", fmt.Errorf("failed to gather metrics: %w", err)
	}
	writer := &bytes.Buffer{}
	for _, mf := range metricFamilies {
		if _, err := expfmt.MetricFamilyToText(writer, mf); err != nil {
			return "", fmt.Errorf("failed to export '%s': %w", mf.GetName(), err)
		}
	}
	lines := strings.Split(writer.String(), "\n")
	linesFiltered := make([]string, 0, len(lines)/2)
	for _, ln := range lines {
		if strings.HasPrefix(ln, "#") {
			continue
		}
		if !includeZeroValues && strings.HasSuffix(ln, " 0") {
			continue
		}
		linesFiltered = append(linesFiltered, ln)
	}
	return strings.Join(linesFiltered, "\n"), nil
}

// Prefix is the prefix added to all metric names inside this factory
func (factory *MetricFactory) Prefix() string {
	return factory.namePrefix
}

func (factory *MetricFactory) concatNameAndLabels(name string, labelNames []string, leftmostLabelValues []string) (string, []string, []string) {
	if len(labelNames) < len(leftmostLabelValues) {
		logger.Panicf("length of labelNames (%s) should be equal or greater than length of leftmostLabelValues (%s)",
			strings.Join(labelNames, ","), strings.Join(leftmostLabelValues, ","))
	}
	fullName := factory.namePrefix + name
	allLabelNames := append(append([]string(nil), factory.parentLabelNames...), labelNames...)
	allLeftmostLabelValues := append(append([]string(nil), factory.parentLabelValues...), leftmostLabelValues...)
	return fullName, allLabelNames, allLeftmostLabelValues
}

// addOrGet returns the collector of the name, or registers a new one globally
//
// If another registry has registered the same metric, the existing collector is reused
func (reg *metricRegistry) addOrGet(fullName string, create func() prometheus.Collector) prometheus.Collector {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	if collector, ok := reg.metrics[fullName]; ok {
		return collector
	}
	collector := create()
	if err := prometheus.Register(collector); err != nil {
		var existsErr prometheus.AlreadyRegisteredError
		if !errors.As(err, &existsErr) {
			logger.Panicf("failed to register metric '%s': %s", fullName, err.Error())
		}
		collector = existsErr.ExistingCollector
	}
	reg.metrics[fullName] = collector
	return collector
}

func (reg *metricRegistry) listByPrefix(prefix string) []prometheus.Collector {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	names := make([]string, 0, len(reg.metrics))
	for name := range reg.metrics {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	collectors := make([]prometheus.Collector, len(names))
	for i, name := range names {
		collectors[i] = reg.metrics[name]
	}
	return collectors
}

func buildLabels(labelNames []string, leftmostLabelValues []string) prometheus.Labels {
	labelMap := make(prometheus.Labels, len(leftmostLabelValues))
	for i, value := range leftmostLabelValues {
		labelMap[labelNames[i]] = value
	}
	return labelMap
}

func checkSameLength(labelNames []string, labelValues []string) {
	if len(labelNames) != len(labelValues) {
		logger.Panicf("different lengths of labelNames (%s) and labelValues (%s)",
			strings.Join(labelNames, ","), strings.Join(labelValues, ","))
	}
}
