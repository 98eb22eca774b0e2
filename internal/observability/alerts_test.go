package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type alertRule struct {
	Alert       string            `yaml:"alert"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for"`
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

type alertGroup struct {
	Name  string      `yaml:"name"`
	Rules []alertRule `yaml:"rules"`
}

type alertFile struct {
	Groups []alertGroup `yaml:"groups"`
}

func TestInvoicerAlertRules(t *testing.T) {
	path := filepath.Join("..", "..", "deploy", "prometheus", "alerts", "invoicer.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read alert file: %v", err)
	}

	var file alertFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		t.Fatalf("failed to unmarshal alert file: %v", err)
	}

	if len(file.Groups) == 0 {
		t.Fatal("expected at least one alert group")
	}

	var invoicerGroup *alertGroup
	for i := range file.Groups {
		if file.Groups[i].Name == "invoicer" {
			invoicerGroup = &file.Groups[i]
			break
		}
	}
	if invoicerGroup == nil {
		t.Fatal("invoicer alert group missing")
	}

	expected := map[string]struct {
		severity string
		runbook  string
	}{
		"ExportFailures":  {severity: "critical", runbook: "docs/runbook.md#export-failures"},
		"StorageErrors":   {severity: "warning", runbook: "docs/runbook.md#storage-errors"},
		"HighHTTPLatency": {severity: "warning", runbook: "docs/runbook.md#high-latency"},
	}

	if len(invoicerGroup.Rules) != len(expected) {
		t.Fatalf("expected %d rules, got %d", len(expected), len(invoicerGroup.Rules))
	}

	for _, rule := range invoicerGroup.Rules {
		want, ok := expected[rule.Alert]
		if !ok {
			t.Fatalf("unexpected rule %q", rule.Alert)
		}
		if rule.Labels["severity"] != want.severity {
			t.Fatalf("rule %s severity mismatch: %s", rule.Alert, rule.Labels["severity"])
		}
		if rule.Annotations["runbook"] != want.runbook {
			t.Fatalf("rule %s runbook mismatch: %s", rule.Alert, rule.Annotations["runbook"])
		}
		if rule.Annotations["summary"] == "" || rule.Annotations["description"] == "" {
			t.Fatalf("rule %s must include summary and description annotations", rule.Alert)
		}
		if !strings.Contains(rule.Expr, "invoicer_") {
			t.Fatalf("rule %s must query invoicer metrics: %s", rule.Alert, rule.Expr)
		}
		if rule.For == "" {
			t.Fatalf("rule %s must define a hold duration", rule.Alert)
		}
	}
}
