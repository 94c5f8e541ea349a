/*
Package preferences implements portlet preferences and their commit protocol.

A Preferences value is the working copy of one preference set: definition
defaults overlaid with the stored values, plus the changes made by the portlet
during the current invocation. Store runs the configured validator exactly
once; a rejection leaves storage untouched, an acceptance persists the whole
set in a single write.

Manager loads working copies from a ports.PreferencesStore and serializes
commits per key, in process and optionally across replicas through a
ports.DistributedLocker.
*/
package preferences
