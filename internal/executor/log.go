package executor

import ilogger "sapling-unit/internal/logger"

func logInfo(msg string) { ilogger.LogInfo(msg) }

func logWarn(msg string) { ilogger.LogWarn(msg) }
