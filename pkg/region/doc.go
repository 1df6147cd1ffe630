// Package region defines the administrative-region vocabulary shared by the
// cascade controller, the upstream client and the renderers: regions as
// returned by the children endpoint, committed selections and their hidden
// field encoding, and the level-code lookup used to label tags.
package region
