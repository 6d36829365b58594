// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts what the pipeline stages do. The counters live in
// a private Prometheus registry and are written out once per run in the
// node-exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "ner_corpus"

// Recorder holds the pipeline counters. A nil *Recorder is valid and
// records nothing, so stages can take one unconditionally.
type Recorder struct {
	registry *prometheus.Registry

	documents   *prometheus.CounterVec
	sentences   prometheus.Counter
	sequences   *prometheus.CounterVec
	spans       *prometheus.CounterVec
	labels      *prometheus.CounterVec
	articles    *prometheus.CounterVec
	docDuration prometheus.Histogram
}

// NewRecorder creates a Recorder with all metrics registered under
// namespace (DefaultNamespace when empty).
func NewRecorder(namespace string) *Recorder {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents seen by the corpus build, by outcome.",
		}, []string{"outcome"}),
		sentences: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sentences_total",
			Help:      "Sentences segmented from document text.",
		}),
		sequences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sequences_total",
			Help:      "Tagged sequences, by filter outcome.",
		}, []string{"outcome"}),
		spans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spans_total",
			Help:      "Entity spans accepted, by category.",
		}, []string{"category"}),
		labels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "labels_total",
			Help:      "Token labels assigned, by label.",
		}, []string{"label"}),
		articles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_total",
			Help:      "Raw articles seen by candidate extraction, by outcome.",
		}, []string{"outcome"}),
		docDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_duration_seconds",
			Help:      "Time spent labeling one document.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
	}
	r.registry.MustRegister(r.documents, r.sentences, r.sequences, r.spans,
		r.labels, r.articles, r.docDuration)
	return r
}

// Registry exposes the underlying registry, e.g. for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// DocumentProcessed records a labeled document and how long it took.
func (r *Recorder) DocumentProcessed(d time.Duration) {
	if r == nil {
		return
	}
	r.documents.WithLabelValues("processed").Inc()
	r.docDuration.Observe(d.Seconds())
}

// DocumentSkipped records a document without usable text.
func (r *Recorder) DocumentSkipped() {
	if r == nil {
		return
	}
	r.documents.WithLabelValues("skipped").Inc()
}

// Sentences adds n segmented sentences.
func (r *Recorder) Sentences(n int) {
	if r == nil {
		return
	}
	r.sentences.Add(float64(n))
}

// Spans adds n accepted spans of category.
func (r *Recorder) Spans(category string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.spans.WithLabelValues(category).Add(float64(n))
}

// Labels counts the labels of one sequence.
func (r *Recorder) Labels(labels []string) {
	if r == nil {
		return
	}
	for _, l := range labels {
		r.labels.WithLabelValues(l).Inc()
	}
}

// Sequences records the outcome of the entity filter.
func (r *Recorder) Sequences(retained, dropped int) {
	if r == nil {
		return
	}
	r.sequences.WithLabelValues("retained").Add(float64(retained))
	r.sequences.WithLabelValues("dropped").Add(float64(dropped))
}

// Article records one raw article handled by the extraction stage with
// outcome "extracted", "empty" or "failed".
func (r *Recorder) Article(outcome string) {
	if r == nil {
		return
	}
	r.articles.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
