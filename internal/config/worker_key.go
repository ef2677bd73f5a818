package config

type WorkerKeyStruct struct {
	ArchiveWorksQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ArchiveWorksQueue: "archive_works_queue",
}
