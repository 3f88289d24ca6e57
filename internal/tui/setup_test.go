package tui

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"

	"github.com/petsalud/vet-cli/internal/clinic"
)

func TestSetupWizardSavesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), clinic.ConfigFile)
	m := NewSetupTUI(path)
	var probed []string
	m.probe = func(_ context.Context, base string) error {
		probed = append(probed, base)
		if base == "http://192.168.1.10:8080/api" {
			return nil
		}
		return errors.New("unreachable")
	}

	next, _ := m.Update(key("enter"))
	m = next.(SetupModel)
	if m.step != SetupForm {
		t.Fatalf("step %d after welcome", m.step)
	}

	// An empty API URL keeps the form open.
	next, _ = m.Update(key("enter"))
	m = next.(SetupModel)
	if m.step != SetupForm {
		t.Fatal("validated without an API URL")
	}

	m.inputs[setupAPIURL].SetValue("https://clinica.example.com/api")
	m.inputs[setupLANURL].SetValue("http://192.168.1.10:8080/api")
	m.inputs[setupPageSize].SetValue("25")

	next, _ = m.Update(m.validate()())
	m = next.(SetupModel)
	if m.step != SetupSuccess || m.mode != clinic.ModeLAN {
		t.Fatalf("step %d mode %q err %v", m.step, m.mode, m.err)
	}
	if len(probed) != 1 {
		t.Errorf("probed %v, the clinic network answers first", probed)
	}

	next, _ = m.Update(m.save()())
	m = next.(SetupModel)
	if !m.Saved() {
		t.Fatalf("not saved: %v", m.err)
	}

	values, err := godotenv.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	config, err := clinic.ParseConfig(values)
	if err != nil {
		t.Fatal(err)
	}
	if config.APIURL != "https://clinica.example.com/api" || config.PageSize != 25 {
		t.Errorf("saved %+v", config)
	}
	if config.Brand != clinic.DefaultConfig().Brand {
		t.Errorf("brand %q, want the default", config.Brand)
	}
}

func TestSetupWizardReportsUnreachableAPI(t *testing.T) {
	m := NewSetupTUI(filepath.Join(t.TempDir(), clinic.ConfigFile))
	m.probe = func(context.Context, string) error { return errors.New("connection refused") }

	next, _ := m.Update(key("enter"))
	m = next.(SetupModel)
	m.inputs[setupAPIURL].SetValue("https://clinica.example.com/api")

	next, _ = m.Update(m.validate()())
	m = next.(SetupModel)
	if m.step != SetupError || m.err == nil {
		t.Fatalf("step %d err %v", m.step, m.err)
	}

	// Enter goes back to the form to fix the URL.
	next, _ = m.Update(key("enter"))
	m = next.(SetupModel)
	if m.step != SetupForm || m.err != nil {
		t.Errorf("step %d err %v", m.step, m.err)
	}
	if m.Saved() {
		t.Error("saved after a failure")
	}
}
