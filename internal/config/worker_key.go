package config

type WorkerKeyStruct struct {
	ReconcileActiveRefs string
}

var WorkerKey = &WorkerKeyStruct{
	ReconcileActiveRefs: "reconcile_active_refs",
}
