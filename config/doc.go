// Package config loads cellmate settings from YAML files and implements
// [agent.Settings] on top of them.
//
// Settings are read from ~/.cellmate/config.yaml and then from
// .cellmate/config.yaml in the working directory. Keys present in a later
// file overwrite earlier values, so a project can tighten the approval
// list without restating the rest. API keys usually come from the
// environment instead; see [provider.ConfigFromEnv].
package config
