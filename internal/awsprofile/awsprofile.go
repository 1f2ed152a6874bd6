// Package awsprofile lists the profiles of the AWS shared config and credentials files.
package awsprofile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/ini.v1"
)

// Profile is one named profile found in the shared files.
type Profile struct {
	Name           string
	Region         string
	HasCredentials bool
}

// DefaultPaths returns the shared config and credentials paths, honoring
// AWS_CONFIG_FILE and AWS_SHARED_CREDENTIALS_FILE.
func DefaultPaths() (configPath, credentialsPath string) {
	home, _ := os.UserHomeDir()

	configPath = os.Getenv("AWS_CONFIG_FILE")
	if configPath == "" {
		configPath = filepath.Join(home, ".aws", "config")
	}
	credentialsPath = os.Getenv("AWS_SHARED_CREDENTIALS_FILE")
	if credentialsPath == "" {
		credentialsPath = filepath.Join(home, ".aws", "credentials")
	}
	return configPath, credentialsPath
}

// List merges the profiles of both files, sorted by name. Missing files are skipped.
func List(configPath, credentialsPath string) ([]Profile, error) {
	profiles := make(map[string]*Profile)
	get := func(name string) *Profile {
		p, ok := profiles[name]
		if !ok {
			p = &Profile{Name: name}
			profiles[name] = p
		}
		return p
	}

	cfg, err := load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		for _, section := range cfg.Sections() {
			name, ok := configProfileName(section.Name())
			if !ok || len(section.Keys()) == 0 {
				continue
			}
			p := get(name)
			p.Region = section.Key("region").String()
			if section.HasKey("aws_access_key_id") {
				p.HasCredentials = true
			}
		}
	}

	creds, err := load(credentialsPath)
	if err != nil {
		return nil, err
	}
	if creds != nil {
		for _, section := range creds.Sections() {
			if section.Name() == ini.DefaultSection || len(section.Keys()) == 0 {
				continue
			}
			p := get(section.Name())
			if section.HasKey("aws_access_key_id") {
				p.HasCredentials = true
			}
		}
	}

	list := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		list = append(list, *p)
	}
	slices.SortFunc(list, func(a, b Profile) int { return strings.Compare(a.Name, b.Name) })
	return list, nil
}

// Exists reports whether name is a known profile.
func Exists(profiles []Profile, name string) bool {
	return slices.ContainsFunc(profiles, func(p Profile) bool { return p.Name == name })
}

func load(path string) (*ini.File, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return f, nil
}

// configProfileName maps a config file section to a profile name:
// "default" and "profile <name>" are profiles, other sections are not.
func configProfileName(section string) (string, bool) {
	if section == "default" {
		return section, true
	}
	if name, ok := strings.CutPrefix(section, "profile "); ok {
		name = strings.TrimSpace(name)
		return name, name != ""
	}
	return "", false
}
